// Package cookie writes and reads HTTP cookies carrying short opaque values
// such as session identifiers.
//
// A Manager holds default attributes (Secure, HttpOnly and SameSite=Strict
// out of the box) and, optionally, HMAC-SHA256 signing secrets. The first
// secret signs; every secret verifies, which allows key rotation.
//
//	man, err := cookie.New([]string{os.Getenv("COOKIE_SECRET")})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	_ = man.SetSigned(w, "id", value, cookie.WithMaxAge(3600))
//	value, err := man.GetSigned(r, "id")
//	man.Delete(w, "id")
//
// Removal cookies are written with the manager's path and domain so they
// replace the original cookie.
//
// Errors are package-level sentinels (ErrCookieNotFound, ErrInvalidSignature,
// ErrInvalidFormat, ErrNoSecret, ErrSecretTooShort) for use with errors.Is.
package cookie
