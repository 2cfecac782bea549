// Package llm provides an OpenAI-compatible chat completion client used as the
// translation provider.
//
// # Translation
//
// Translate sends one field of source-language text with a prompt that asks
// for a JSON object {"translation": "..."} and returns the trimmed result.
// Empty translations are reported as errors so callers never write blanks.
//
// # Configuration
//
// Requires api_key and model, and optionally base_url, referer, title and
// timeout. The default endpoint is OpenRouter.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx, empty completions and network
// timeouts with exponential backoff (base 1s, max 10s, up to 5 attempts by
// default), honoring Retry-After. Context cancellation aborts retries
// immediately.
package llm
