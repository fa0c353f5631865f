package storage

import "sync"

// resetDataDirForTest clears the memoized data dir so each test can point the
// package at a fresh temp dir.
func resetDataDirForTest() {
	dataDirOnce = sync.Once{}
	dataDirPath = ""
}
