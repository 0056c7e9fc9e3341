/*
Package authsdk provides a client SDK for the concert authentication service.

# Overview

The service issues short-lived access tokens and long-lived refresh tokens.
SDKClient wraps the five public endpoints, Session keeps a token pair and
refreshes the access token before it expires.

	client := authsdk.NewSDKClient("https://auth.example.com")

	// Create an account, or log in to an existing one
	session, err := client.AuthenticateWithRegistration(ctx, email, password, name)
	session, err := client.AuthenticateWithPassword(ctx, email, password)

	// A valid access token, refreshed if needed
	token, err := session.Token(ctx)

	// End the session, revoking the refresh token
	err = session.Logout(ctx)

# Errors

Every non-2xx response is returned as an *APIError carrying the status code
and the service's message. The same type is used by the server to write
error responses, so both sides agree on the body shape:

	{"error": "Invalid credentials"}

Use errors.As to inspect it:

	var apiErr *authsdk.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
		// log in again
	}
*/
package authsdk
