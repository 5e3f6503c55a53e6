package services

import "github.com/oculusai/console/internal/domain/entities"

// SecretModelAlias is the fixed alias that unlocks the secret tier from a query parameter
const SecretModelAlias = "openflowith"

var publicModels = []entities.Model{
	{
		ID: "oculus-1-0125", Name: "Oculus 1.0", Version: "0125", Series: entities.SeriesFoundation,
		Badge: "Foundation Model", Tier: "foundation",
		Description:         "General-purpose vision model optimized for speed and efficiency. Perfect for getting started with vision AI.",
		ContextWindowTokens: 8192, ContextWindowLabel: "8K tokens",
		Pricing:     entities.Pricing{Input: 0.5, Output: 1.5},
		Performance: entities.Performance{Accuracy: "98.7%", Latency: "85ms", Throughput: "12K/sec"},
		RateLimits:  entities.RateLimits{RPM: 60, TPM: 500_000, Burst: 10},
		Availability: entities.AvailabilityGA, ReleaseDate: "2025-01-25",
	},
	{
		ID: "oculus-1.5-0503", Name: "Oculus 1.5", Version: "0503", Series: entities.SeriesFoundation,
		Badge: "Enhanced Model", Tier: "enhanced",
		Description:         "Advanced vision with multi-modal support and improved accuracy for complex visual understanding tasks.",
		ContextWindowTokens: 32768, ContextWindowLabel: "32K tokens",
		Pricing:     entities.Pricing{Input: 2, Output: 6},
		Performance: entities.Performance{Accuracy: "99.4%", Latency: "120ms", Throughput: "8K/sec"},
		RateLimits:  entities.RateLimits{RPM: 100, TPM: 900_000, Burst: 18},
		Availability: entities.AvailabilityGA, ReleaseDate: "2025-05-03",
	},
	{
		ID: "oculus-2.0-0615", Name: "Oculus 2.0", Version: "0615", Series: entities.SeriesFoundation,
		Badge: "Enhanced Reasoning", Tier: "advanced",
		Description:         "Enhanced reasoning capabilities with improved contextual understanding and multi-step visual analysis.",
		ContextWindowTokens: 65536, ContextWindowLabel: "64K tokens",
		Pricing:     entities.Pricing{Input: 3.5, Output: 10.5},
		Performance: entities.Performance{Accuracy: "99.6%", Latency: "145ms", Throughput: "6.5K/sec"},
		RateLimits:  entities.RateLimits{RPM: 150, TPM: 1_400_000, Burst: 24},
		Availability: entities.AvailabilityGA, ReleaseDate: "2025-06-15",
	},
	{
		ID: "oculus-2.5-0728", Name: "Oculus 2.5", Version: "0728", Series: entities.SeriesFoundation,
		Badge: "Multimodal Expert", Tier: "advanced",
		Description:         "Multimodal capabilities combining vision, text, and audio understanding for comprehensive analysis.",
		ContextWindowTokens: 131072, ContextWindowLabel: "128K tokens",
		Pricing:     entities.Pricing{Input: 5, Output: 15},
		Performance: entities.Performance{Accuracy: "99.7%", Latency: "180ms", Throughput: "5K/sec"},
		RateLimits:  entities.RateLimits{RPM: 200, TPM: 1_800_000, Burst: 32},
		Availability: entities.AvailabilityGA, ReleaseDate: "2025-07-28",
	},
	{
		ID: "oculus-3.0-0901", Name: "Oculus 3.0", Version: "0901", Series: entities.SeriesFoundation,
		Badge: "Advanced Intelligence", Tier: "advanced",
		Description:         "State-of-the-art vision intelligence with breakthrough performance across all benchmarks.",
		ContextWindowTokens: 262144, ContextWindowLabel: "256K tokens",
		Pricing:     entities.Pricing{Input: 7.5, Output: 22.5},
		Performance: entities.Performance{Accuracy: "99.8%", Latency: "210ms", Throughput: "4K/sec"},
		RateLimits:  entities.RateLimits{RPM: 250, TPM: 2_200_000, Burst: 36},
		Availability: entities.AvailabilityGA, ReleaseDate: "2025-09-01",
	},
	{
		ID: "oculus-4.0-1120", Name: "Oculus 4.0", Version: "1120", Series: entities.SeriesUltra,
		Badge: "Cutting Edge", Tier: "premium",
		Description:         "The most advanced vision model available, pushing the boundaries of what's possible with AI vision.",
		ContextWindowTokens: 1_048_576, ContextWindowLabel: "1M tokens",
		Pricing:     entities.Pricing{Input: 15, Output: 45},
		Performance: entities.Performance{Accuracy: "99.95%", Latency: "250ms", Throughput: "2.5K/sec"},
		RateLimits:  entities.RateLimits{RPM: 1000, TPM: 4_500_000, Burst: 64},
		Availability: entities.AvailabilityBeta, ReleaseDate: "2025-11-20",
	},
	{
		ID: "oculus-ultra-1.0", Name: "Oculus Ultra", Version: "1.0", Series: entities.SeriesUltra,
		Badge: "Premium Tier", Tier: "premium",
		Description:         "Premium tier model with the highest accuracy and most advanced capabilities available.",
		ContextWindowTokens: 2_097_152, ContextWindowLabel: "2M tokens",
		Pricing:     entities.Pricing{Input: 20, Output: 60},
		Performance: entities.Performance{Accuracy: "99.98%", Latency: "280ms", Throughput: "2K/sec"},
		RateLimits:  entities.RateLimits{RPM: 2000, TPM: 6_000_000, Burst: 80},
		Availability: entities.AvailabilityPreview, ReleaseDate: "2025-11-30",
	},
	{
		ID: "oculus-3.5-1015", Name: "Oculus 3.5", Version: "1015", Series: entities.SeriesPro,
		Badge: "Enterprise Grade", Tier: "enterprise",
		Description:         "Enterprise-focused model with enhanced security, compliance features, and guaranteed SLAs.",
		ContextWindowTokens: 524288, ContextWindowLabel: "512K tokens",
		Pricing:     entities.Pricing{Input: 10, Output: 30},
		Performance: entities.Performance{Accuracy: "99.9%", Latency: "195ms", Throughput: "3.5K/sec"},
		RateLimits:  entities.RateLimits{RPM: 500, TPM: 3_000_000, Burst: 48},
		Availability: entities.AvailabilityGA, ReleaseDate: "2025-10-15",
	},
	{
		ID: "oculus-pro-1.0", Name: "Oculus Pro 1.0", Version: "1.0", Series: entities.SeriesPro,
		Badge: "Professional Tier", Tier: "enterprise",
		Description:         "Professional-grade model optimized for production workloads with consistent performance.",
		ContextWindowTokens: 131072, ContextWindowLabel: "128K tokens",
		Pricing:     entities.Pricing{Input: 6, Output: 18},
		Performance: entities.Performance{Accuracy: "99.5%", Latency: "160ms", Throughput: "5.5K/sec"},
		RateLimits:  entities.RateLimits{RPM: 300, TPM: 2_000_000, Burst: 40},
		Availability: entities.AvailabilityGA, ReleaseDate: "2025-08-10",
	},
	{
		ID: "oculus-pro-2.0", Name: "Oculus Pro 2.0", Version: "2.0", Series: entities.SeriesPro,
		Badge: "Advanced Pro", Tier: "enterprise",
		Description:         "Advanced professional model with premium features for demanding production environments.",
		ContextWindowTokens: 262144, ContextWindowLabel: "256K tokens",
		Pricing:     entities.Pricing{Input: 12, Output: 36},
		Performance: entities.Performance{Accuracy: "99.85%", Latency: "175ms", Throughput: "4.2K/sec"},
		RateLimits:  entities.RateLimits{RPM: 750, TPM: 3_500_000, Burst: 56},
		Availability: entities.AvailabilityGA, ReleaseDate: "2025-10-01",
	},
	{
		ID: "oculus-mini-1.0", Name: "Oculus Mini", Version: "1.0", Series: entities.SeriesMini,
		Badge: "Lightweight & Fast", Tier: "lightweight",
		Description:         "Ultra-fast, lightweight model optimized for edge devices and low-latency applications.",
		ContextWindowTokens: 4096, ContextWindowLabel: "4K tokens",
		Pricing:     entities.Pricing{Input: 0.25, Output: 0.75},
		Performance: entities.Performance{Accuracy: "97.8%", Latency: "35ms", Throughput: "25K/sec"},
		RateLimits:  entities.RateLimits{RPM: 120, TPM: 700_000, Burst: 20},
		Availability: entities.AvailabilityGA, ReleaseDate: "2025-07-15",
	},
	{
		ID: "oculus-vision-1.0", Name: "Oculus Vision", Version: "1.0", Series: entities.SeriesSpecialized,
		Badge: "Vision Specialist", Tier: "specialized",
		Description:         "Specialized model fine-tuned specifically for advanced vision tasks and image understanding.",
		ContextWindowTokens: 65536, ContextWindowLabel: "64K tokens",
		Pricing:     entities.Pricing{Input: 4.5, Output: 13.5},
		Performance: entities.Performance{Accuracy: "99.75%", Latency: "130ms", Throughput: "6K/sec"},
		RateLimits:  entities.RateLimits{RPM: 180, TPM: 1_200_000, Burst: 28},
		Availability: entities.AvailabilityGA, ReleaseDate: "2025-09-20",
	},
}

var secretModel = entities.Model{
	ID: "openflowith-1.0", Name: "Openflowith", Version: "1.0", Series: entities.SeriesSecret,
	Badge: "Classified Access", Tier: "premium",
	Description:         "Invitation-only intelligence artifact orchestrating temporal reasoning threads beyond conventional context limits.",
	ContextWindowTokens: 10_485_760, ContextWindowLabel: "10M tokens",
	Pricing:     entities.Pricing{Input: 0, Output: 0},
	Performance: entities.Performance{Accuracy: "99.999%", Latency: "12ms", Throughput: "∞"},
	RateLimits:  entities.RateLimits{RPM: 5000, TPM: 50_000_000, Burst: 200},
	Availability: entities.AvailabilityPreview, ReleaseDate: "2025-12-31",
	Secret:       true,
}

// seriesOrder is the dropdown order of the public series
var seriesOrder = []entities.Series{
	entities.SeriesFoundation,
	entities.SeriesUltra,
	entities.SeriesPro,
	entities.SeriesMini,
	entities.SeriesSpecialized,
}

var seriesLabels = map[entities.Series]string{
	entities.SeriesFoundation:  "Foundation",
	entities.SeriesUltra:       "Ultra",
	entities.SeriesPro:         "Pro",
	entities.SeriesMini:        "Mini",
	entities.SeriesSpecialized: "Specialized",
	entities.SeriesSecret:      "Secret",
}

var seriesHints = map[entities.Series][]string{
	entities.SeriesFoundation: {
		"Tune your context window budgets for tiered reasoning depth",
		"Blend structured outputs with natural language for faster pilots",
		"Leverage system prompts to reinforce governance guardrails",
	},
	entities.SeriesUltra: {
		"Plan multi-stage agent orchestration with fallbacks",
		"Request strategic simulations across business units",
		"Combine domain-specific fine-tunes with Ultra's base intelligence",
	},
	entities.SeriesPro: {
		"Inspect rate limits before deploying to production",
		"Ask for resiliency patterns for multi-region workloads",
		"Gather guidance on monitoring, tracing, and governance hooks",
	},
	entities.SeriesMini: {
		"Explore low-profile quantization techniques for edge devices",
		"Request recipes for real-time streaming inference",
		"Combine Mini responses with on-device post-processing",
	},
	entities.SeriesSpecialized: {
		"Pair domain knowledge with the right specialist capability",
		"Request evaluation templates tailored to your modality",
		"Ask for integration tips specific to your vertical",
	},
	entities.SeriesSecret: {
		"Query temporal paradox resolution",
		"Request cross-dimensional synthesis",
		"Explore quantum-safe protocols",
	},
}

var searchModeHints = []string{
	"Search across all conversations and messages",
	"Use specific keywords for better results",
	"Results are ordered by recency",
	"Switch back to Conversation mode to continue chatting",
}

var deepThinkModeHints = []string{
	"Extended reasoning with structured analysis",
	"Expect detailed breakdowns and key takeaways",
	"Responses may take longer to generate",
	"Best for complex problems requiring deep analysis",
}
