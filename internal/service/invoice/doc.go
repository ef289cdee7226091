// Package invoice implements the invoice mutation pipeline and its read side.
//
// Every create/update/delete runs the same fixed sequence: validate the
// submitted form, persist through the Repository, invalidate the cached
// invoice list and hand an ActionResult back to the caller. Failures never
// escape as errors; they are folded into the result so the form can be
// re-rendered. The service never navigates itself: a successful create or
// update carries a Redirect path and the HTTP layer performs the redirect.
//
// Repository implementations live in repository/postgres/.
package invoice
