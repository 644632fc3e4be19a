package commskills

// Marker lists used by the feature extractor and the score calculators.
var (
	fillerWords = []string{"um", "uh", "like", "you know", "actually", "basically", "literally", "sort of", "kind of"}
	formalWords = []string{"therefore", "however", "moreover", "furthermore", "consequently"}

	clarityMarkers    = []string{"clear", "understand", "explain", "simple", "direct", "obvious", "apparent"}
	strongMarkers     = []string{"believe", "confident", "excited", "passionate", "sure", "certain", "definitely", "absolutely"}
	moderateMarkers   = []string{"think", "feel", "hope", "suggest", "recommend", "consider"}
	leadershipMarkers = []string{"lead", "guide", "direct", "manage", "organize", "plan", "decide"}
	uncertainMarkers  = []string{"maybe", "perhaps", "possibly", "might", "could", "should", "would"}
	articulateMarkers = []string{"articulate", "express", "communicate", "convey", "describe", "explain", "elaborate", "detail"}
)

// simple mode
var (
	simpleClarityMarkers    = []string{"clear", "understand", "explain", "simple", "direct"}
	simplePositiveKeywords  = []string{"effective", "clear", "good", "excellent", "confident", "passionate", "important", "essential", "success", "improve", "better", "understand"}
	simpleConfidenceMarkers = []string{"believe", "confident", "excited", "passionate", "sure", "certain"}
	simpleHesitationMarkers = []string{"um", "uh", "like", "you know", "actually", "basically"}
	simpleArticulateMarkers = []string{"articulate", "express", "communicate", "convey", "present"}
)

// wordTrimSet is stripped from both ends of a word before vocabulary and token comparisons.
const wordTrimSet = ".,!?;:\""
