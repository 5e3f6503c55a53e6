package ports

// TokenCounter estimates how many tokens a piece of text occupies
type TokenCounter interface {
	CountTokens(text string) int
}
