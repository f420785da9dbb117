// Package clock provides a tiny time abstraction.
//
// Token expiry and TOTP step computation are both functions of "now", so
// production code depends on the Clocker interface instead of calling
// time.Now() directly. Tests swap in a fixed clock and get deterministic
// codes and deterministic expiry decisions.
package clock
