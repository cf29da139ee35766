package ceed

// SyncState tracks the validity of a buffer that lives in two memory spaces.
// Backends with device memory use it to copy lazily: a copy is needed only
// when the requested space is stale and the other one is valid.
type SyncState struct {
	state BufferState
}

func (s *SyncState) State() BufferState { return s.state }

// Valid reports whether mem holds current data
func (s *SyncState) Valid(mem MemType) bool {
	switch s.state {
	case BothValid:
		return true
	case HostValid:
		return mem == MemHost
	case DeviceValid:
		return mem == MemDevice
	}
	return false
}

// NeedsCopy reports whether mem is stale while the other space is current
func (s *SyncState) NeedsCopy(mem MemType) bool {
	return s.state != Uninitialized && !s.Valid(mem)
}

// MarkSynced records that mem received a copy of the current data
func (s *SyncState) MarkSynced(mem MemType) {
	if s.state == Uninitialized {
		s.MarkWritten(mem)
		return
	}
	s.state = BothValid
}

// MarkWritten records that mem was modified and the other space is stale
func (s *SyncState) MarkWritten(mem MemType) {
	if mem == MemDevice {
		s.state = DeviceValid
	} else {
		s.state = HostValid
	}
}

func (s *SyncState) Reset() { s.state = Uninitialized }
