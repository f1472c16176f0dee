package membershipstore

// LockReconcile holds the reconcile guard until the returned func is called.
func (s *Store) LockReconcile() func() {
	s.reconcileMu.Lock()
	return s.reconcileMu.Unlock
}
