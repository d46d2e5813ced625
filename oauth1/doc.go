// Package oauth1 implements OAuth 1.0a request signing and verification
// per RFC 5849.
//
// It provides client-side signing (via Request and Transport) and
// server-side verification (via Server and Middleware).
//
// # Signature Methods
//
// Three signature methods are supported:
//
//   - PLAINTEXT (Plaintext)
//   - HMAC-SHA1 (HMACSHA1)
//   - RSA-SHA1 (RSASHA1, backed by a CertificateProvider)
//
// # Signing Requests
//
// NewRequestFromConsumer fills in the protocol parameters; Sign adds
// oauth_signature_method and oauth_signature:
//
//	consumer := oauth1.Consumer{Key: "key", Secret: "secret"}
//	token := &oauth1.Token{Key: "token", Secret: "token-secret", Kind: oauth1.TokenAccess}
//
//	req, err := oauth1.NewRequestFromConsumer(consumer, token, http.MethodGet,
//	    "https://api.example.com/Contacts", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := req.Sign(ctx, oauth1.HMACSHA1{}, consumer, token); err != nil {
//	    log.Fatal(err)
//	}
//
//	header, err := req.AuthorizationHeader("")
//
// A signed Request serializes as a URL (ToURL), a form body (ToPostData)
// or an Authorization header (AuthorizationHeader, ToHeader). It cannot
// be modified or signed again.
//
// # Client Transport
//
// NewTransport creates an http.RoundTripper that signs all outgoing
// requests:
//
//	client := &http.Client{
//	    Transport: oauth1.NewTransport(nil, oauth1.ClientConfig{
//	        Consumer: consumer,
//	        Token:    token,
//	    }),
//	}
//
// # Verifying Requests
//
// A Server checks, in order: version, consumer, token, timestamp window,
// nonce uniqueness, signature method and signature. Lookups and the nonce
// store are supplied by the caller:
//
//	server, err := oauth1.NewServer(oauth1.ServerConfig{
//	    Consumers: store,
//	    Tokens:    store,
//	    Nonces:    noncestore.NewMemory(oauth1.DefaultTimestampThreshold),
//	    Methods:   []oauth1.SignatureMethod{oauth1.HMACSHA1{}},
//	})
//
//	consumer, token, err := server.VerifyRequest(ctx, req)
//
// # Server Middleware
//
// Middleware verifies inbound HTTP requests and stores the consumer and
// token in the request context:
//
//	mw, err := oauth1.Middleware(oauth1.MiddlewareConfig{Server: server})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	http.Handle("/api/", mw(apiHandler))
//
// Failures are answered with the status, text code and message from
// ErrorEnvelope.
//
// Behind a reverse proxy, wrap the handlers with ProxyHeaders so the
// scheme and host the client signed are restored before verification.
package oauth1
