// Package httpclient builds chat completion requests and the HTTP clients
// that send them.
//
// # Request Building
//
// Use [NewRequestBuilder] to create a builder from configuration. Every
// request is a POST to <endpoint>/chat/completions whose JSON body is the
// shared [Template] (model, temperature, max_tokens) plus a single user
// message:
//
//	builder, err := httpclient.NewRequestBuilder(cfg)
//	if err != nil {
//		return err
//	}
//	req, err := builder.Build(ctx, "Hello")
//
// For gateways that require an API key, use [NewRequestBuilderWithAuth]:
//
//	builder, err := httpclient.NewRequestBuilderWithAuth(cfg, auth.FromAPIKey(cfg.APIKey))
//
// # HTTP Client
//
// [NewClient] creates a client with its own transport. The sweep builds one
// per phase so connection pools never carry over between concurrency levels:
//
//	client := httpclient.NewClient(30*time.Second, level)
//	defer client.CloseIdleConnections()
package httpclient
