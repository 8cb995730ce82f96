package rank

// DailyStardust is the stardust awarded for the first accepted entry of
// a calendar day.
const DailyStardust = 10

// ConstellationSize is how many valid stars complete a constellation.
const ConstellationSize = 7

// Definition is one row of the static rank table. Threshold is the
// cumulative stardust required to hold this rank; index 0 is the
// starting rank. Thresholds are strictly increasing.
type Definition struct {
	Title     string `json:"title"`
	Threshold int    `json:"threshold"`
	Psyche    string `json:"psyche"`
	Icon      string `json:"icon"`
}

// Ranks is the full progression ladder. Ordering matters: RankIndex on a
// profile is an index into this slice.
var Ranks = []Definition{
	{Title: "Dust Mote", Threshold: 0, Psyche: "You drift. Every journey starts weightless.", Icon: "dust"},
	{Title: "Spark", Threshold: 10, Psyche: "A first light. You showed up, and that counts.", Icon: "spark"},
	{Title: "Ember", Threshold: 30, Psyche: "Warmth is gathering. Habits begin as heat.", Icon: "ember"},
	{Title: "Stargazer", Threshold: 70, Psyche: "You look up now. Noticing is half of healing.", Icon: "stargazer"},
	{Title: "Comet", Threshold: 150, Psyche: "Momentum. You carry your own tail of light.", Icon: "comet"},
	{Title: "Satellite", Threshold: 300, Psyche: "You orbit your days with steady attention.", Icon: "satellite"},
	{Title: "Moonborn", Threshold: 500, Psyche: "Quiet phases are still phases. Keep turning.", Icon: "moon"},
	{Title: "Sunweaver", Threshold: 800, Psyche: "Your light reaches further than you think.", Icon: "sun"},
	{Title: "Nebula", Threshold: 1200, Psyche: "From scattered dust, something is forming.", Icon: "nebula"},
	{Title: "Pulsar", Threshold: 1700, Psyche: "A rhythm nobody can take from you.", Icon: "pulsar"},
	{Title: "Supernova", Threshold: 2300, Psyche: "You have burned through old versions of yourself.", Icon: "supernova"},
	{Title: "Galactic Core", Threshold: 3000, Psyche: "Everything orbits what you have built.", Icon: "core"},
}

// Meta is what the dashboard needs to render a rank card.
type Meta struct {
	Index         int    `json:"index"`
	Title         string `json:"title"`
	Threshold     int    `json:"threshold"`
	NextThreshold int    `json:"next_threshold"`
	Psyche        string `json:"psyche"`
	Icon          string `json:"icon"`
}

// GetRankMeta returns the display metadata for a rank index, clamped to
// the table bounds. The highest rank repeats its own threshold as the
// "next" threshold so progress renders as 100%.
func GetRankMeta(index int) Meta {
	if index < 0 {
		index = 0
	}
	if index >= len(Ranks) {
		index = len(Ranks) - 1
	}
	def := Ranks[index]
	next := def.Threshold
	if index+1 < len(Ranks) {
		next = Ranks[index+1].Threshold
	}
	return Meta{
		Index:         index,
		Title:         def.Title,
		Threshold:     def.Threshold,
		NextThreshold: next,
		Psyche:        def.Psyche,
		Icon:          def.Icon,
	}
}

// RankForStardust returns the greatest index whose threshold is
// satisfied by the given stardust total.
func RankForStardust(stardust int) int {
	idx := 0
	for i, def := range Ranks {
		if stardust >= def.Threshold {
			idx = i
		}
	}
	return idx
}

// AllRanks returns the full table for the progression screen.
func AllRanks() []Definition {
	out := make([]Definition, len(Ranks))
	copy(out, Ranks)
	return out
}
