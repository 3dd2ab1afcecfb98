package singlecall

import "time"

// SetClock and SetIDs pin time and ids for tests.
func (s *Service) SetClock(now func() time.Time) { s.now = now }
func (s *Service) SetIDs(next func() string)    { s.newID = next }
