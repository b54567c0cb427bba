package auth

// RequireLoggedIn returns ErrUnauthorized unless the snapshot is a settled,
// confirmed session. Consumers use it to decide whether a call that needs a
// session should be attempted at all.
//
// Usage:
//
//	if err := auth.RequireLoggedIn(store.Snapshot()); err != nil {
//	    return err // show the login prompt instead
//	}
func RequireLoggedIn(s State) error {
	if s.Loading || !s.IsLoggedIn {
		return ErrUnauthorized
	}
	return nil
}
