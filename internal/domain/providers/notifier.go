package providers

import "context"

// Notifier defines the outbound messaging operations the conversation engine
// needs. Delivery failures are reported as errors; the engine never retries.
type Notifier interface {
	// SendText sends a plain text message.
	SendText(ctx context.Context, recipient, message string) error

	// SendBinaryChoice sends a two-button prompt. Button identifiers are
	// derived positionally: "option_1" for the first label, "option_2" for
	// the second.
	SendBinaryChoice(ctx context.Context, recipient, header, body string, labels [2]string) error

	// SendRatingPrompt sends the 1-5 rating buttons, each carrying an
	// identifier of the form "rating_<n>".
	SendRatingPrompt(ctx context.Context, recipient string) error

	// SendCategoryList sends a selectable list of survey categories. Each
	// row's identifier equals the category string.
	SendCategoryList(ctx context.Context, recipient string, categories []string) error
}
