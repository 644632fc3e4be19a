package commskills

import (
	"fmt"
	"strings"
)

type band struct {
	min  float64
	text string
}

// pick returns the text of the first band whose floor v reaches; the last band is the catch-all.
func pick(bands []band, v float64) string {
	for _, b := range bands[:len(bands)-1] {
		if v >= b.min {
			return b.text
		}
	}
	return bands[len(bands)-1].text
}

var (
	overallBands = []band{
		{85, "Excellent communication skills! Your speech demonstrates high proficiency across all areas."},
		{75, "Very good communication skills. You show strong abilities with room for refinement."},
		{65, "Good communication skills. You have a solid foundation to build upon."},
		{55, "Developing communication skills. Focus on the areas mentioned below for improvement."},
		{0, "Communication skills need development. Practice the suggested areas to improve."},
	}
	clarityBands = []band{
		{80, "Your speech is very clear and easy to understand. Words are well-pronounced and your message comes across effectively."},
		{60, "Your speech is generally clear, though some words could be more distinct. Focus on enunciation for better clarity."},
		{0, "Your speech clarity needs improvement. Try speaking more slowly and focusing on pronouncing each word clearly."},
	}
	confidenceBands = []band{
		{80, "You speak with strong confidence and assurance. Your tone is assertive and your message is delivered with conviction."},
		{60, "You show moderate confidence in your speech. While you convey your message, adding more assertiveness would strengthen your delivery."},
		{0, "Your confidence level could be improved. Try to speak with more conviction and use more definitive language."},
	}
	articulationBands = []band{
		{80, "You articulate your thoughts exceptionally well. Your ideas are well-organized and expressed with precision."},
		{60, "Your articulation is good, but could be more precise. Work on organizing your thoughts more coherently."},
		{0, "Your articulation needs improvement. Focus on structuring your thoughts and expressing them more clearly."},
	}
)

// ComposeFeedback builds the feedback paragraph for the final scores.
func ComposeFeedback(s ScoreTriple, fs FeatureSet) string {
	parts := []string{
		pick(overallBands, s.Average()),
		pick(clarityBands, float64(s.Clarity)),
		pick(confidenceBands, float64(s.Confidence)),
		pick(articulationBands, float64(s.Articulation)),
	}
	if fs.FillerWordCount > 3 {
		parts = append(parts, fmt.Sprintf("You used %d filler words, which can distract from your message.", fs.FillerWordCount))
	}
	if fs.ComplexityScore > 0.7 {
		parts = append(parts, "You demonstrate good sentence complexity, showing advanced communication skills.")
	} else if fs.ComplexityScore < 0.3 {
		parts = append(parts, "Your sentences tend to be simple. Try using more complex sentence structures to express sophisticated ideas.")
	}
	if fs.FlowScore > 0.8 {
		parts = append(parts, "Excellent speech flow and rhythm. Your delivery is smooth and engaging.")
	} else if fs.FlowScore < 0.5 {
		parts = append(parts, "Your speech flow could be improved. Work on connecting ideas more smoothly.")
	}
	return strings.Join(parts, " ")
}

var (
	clarityTips = []string{
		"🎯 **Clarity Improvement:**",
		"• Practice speaking 20% slower than your normal pace",
		"• Record yourself reading a paragraph and analyze unclear words",
		"• Focus on mouth movements and tongue placement for difficult sounds",
		"• Use tongue twisters daily to improve diction",
	}
	confidenceTips = []string{
		"💪 **Confidence Building:**",
		"• Practice power poses before speaking",
		"• Start with smaller groups and gradually increase audience size",
		"• Use positive affirmations and visualize successful speaking",
		"• Replace hesitant language with assertive statements",
	}
	articulationTips = []string{
		"🗣️ **Articulation Enhancement:**",
		"• Outline key points before speaking",
		"• Practice the PREP method: Point, Reason, Example, Point",
		"• Read aloud daily to improve thought organization",
		"• Learn and use 5 new vocabulary words each week",
	}
	fillerTips = []string{
		"🚫 **Reduce Filler Words:**",
		"• Practice pausing instead of using 'um', 'uh', 'like'",
		"• Record yourself and count filler words",
		"• Use the 'chunking' technique: group words into meaningful phrases",
	}
	complexityTips = []string{
		"📚 **Sentence Complexity:**",
		"• Practice combining simple sentences with conjunctions",
		"• Use subordinate clauses to add depth to your statements",
		"• Study complex sentence structures in professional writing",
	}
	flowTips = []string{
		"🌊 **Improve Speech Flow:**",
		"• Use transition words between ideas",
		"• Practice speaking in a rhythmic, natural pattern",
		"• Avoid long pauses that break the flow of your message",
	}
	advancedTips = []string{
		"🌟 **Advanced Development:**",
		"• Practice impromptu speaking on complex topics",
		"• Study rhetorical devices and persuasive techniques",
		"• Consider joining Toastmasters or similar speaking groups",
		"• Work on vocal variety and emotional expression",
	}
	dailyTips = []string{
		"📈 **Daily Practice:**",
		"• Set aside 15 minutes daily for focused speaking practice",
		"• Use a mirror to observe facial expressions and body language",
		"• Listen to professional speakers and analyze their techniques",
		"• Seek feedback from others and track your progress over time",
	}
)

// ComposeSuggestions builds the newline-separated practice tips for the final scores.
func ComposeSuggestions(s ScoreTriple, fs FeatureSet) string {
	var lines []string
	if s.Clarity < 70 {
		lines = append(lines, clarityTips...)
	}
	if s.Confidence < 70 {
		lines = append(lines, confidenceTips...)
	}
	if s.Articulation < 70 {
		lines = append(lines, articulationTips...)
	}
	if fs.FillerWordCount > 5 {
		lines = append(lines, fillerTips...)
	}
	if fs.ComplexityScore < 0.4 {
		lines = append(lines, complexityTips...)
	}
	if fs.FlowScore < 0.6 {
		lines = append(lines, flowTips...)
	}
	if s.Clarity >= 80 && s.Confidence >= 80 && s.Articulation >= 80 {
		lines = append(lines, advancedTips...)
	}
	lines = append(lines, dailyTips...)
	return strings.Join(lines, "\n")
}

var (
	simpleOverallBands = []band{
		{80, "Excellent communication skills! Your speech demonstrates strong clarity, confidence, and articulation."},
		{70, "Good communication skills overall. You show solid fundamentals in your speech delivery."},
		{60, "Your communication skills show potential. With some practice, you can improve significantly."},
		{0, "There's room for improvement in your communication skills. Focus on the basics of clear speech."},
	}
	simpleClarityBands = []band{
		{80, "Your clarity is outstanding - you express ideas in a well-structured manner."},
		{60, "Your clarity is good, though you could work on organizing your thoughts more cohesively."},
		{0, "Focus on improving clarity by using simpler sentences and more direct language."},
	}
	simpleConfidenceBands = []band{
		{80, "You speak with great confidence, which engages your audience effectively."},
		{60, "Your confidence shows, but you could benefit from more assertive language."},
		{0, "Work on building confidence through practice and positive self-talk."},
	}
	simpleArticulationBands = []band{
		{80, "Your articulation is excellent - you use varied vocabulary effectively."},
		{60, "Good articulation, though expanding your vocabulary could enhance your speech."},
		{0, "Focus on articulation by practicing with more diverse vocabulary and expressions."},
	}
)

func composeSimpleFeedback(s ScoreTriple) string {
	return strings.Join([]string{
		pick(simpleOverallBands, s.Average()),
		pick(simpleClarityBands, float64(s.Clarity)),
		pick(simpleConfidenceBands, float64(s.Confidence)),
		pick(simpleArticulationBands, float64(s.Articulation)),
	}, " ")
}

func composeSimpleSuggestions(s ScoreTriple) string {
	var lines []string
	if s.Clarity < 70 {
		lines = append(lines,
			"• Practice organizing your thoughts before speaking",
			"• Use shorter, more direct sentences",
			"• Focus on one main idea at a time")
	}
	if s.Confidence < 70 {
		lines = append(lines,
			"• Practice speaking in front of a mirror",
			"• Record yourself and review the playback",
			"• Start with smaller groups and gradually increase audience size")
	}
	if s.Articulation < 70 {
		lines = append(lines,
			"• Read aloud regularly to improve pronunciation",
			"• Learn and use new words daily",
			"• Practice tongue twisters to improve dexterity")
	}
	lines = append(lines,
		"• Seek feedback from others on your communication",
		"• Watch and learn from effective public speakers",
		"• Join a public speaking group or take a communication course")
	return strings.Join(lines, "\n")
}
