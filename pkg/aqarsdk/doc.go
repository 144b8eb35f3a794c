/*
Package aqarsdk is a Go client for the Aqar marketplace API's session and
administration endpoints, and the home of the JSON types those endpoints
exchange.

A Client keeps cookies in a jar, so logging in once authenticates every
later call the same way a browser would. Unsafe requests automatically
echo the csrf_token cookie in the x-csrf-token header:

	c := aqarsdk.NewClient("https://api.aqar.example")

	if _, err := c.Login(ctx, "admin@aqar.example", password); err != nil {
		return err
	}

	users, err := c.ListUsers(ctx, 50, 0)

Machine callers that hold a token can skip cookies entirely:

	c := aqarsdk.NewClient(base, aqarsdk.WithBearerToken(token))

Bearer requests are exempt from the CSRF check.

Error responses decode into *APIError, which carries both the Arabic and
English messages and the optional machine-readable code.
*/
package aqarsdk
