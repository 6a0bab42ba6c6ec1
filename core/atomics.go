package core

import "sync/atomic"

func addCount(addr *int64, delta int64) int64 { return atomic.AddInt64(addr, delta) }
func loadCount(addr *int64) int64             { return atomic.LoadInt64(addr) }
