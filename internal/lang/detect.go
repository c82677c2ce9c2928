package lang

import (
	"github.com/abadojack/whatlanggo"
	"golang.org/x/text/language"
)

// Must stay aligned with Supported(): matcher indices map back into it.
var matcher = language.NewMatcher([]language.Tag{
	language.English,
	language.Russian,
	language.Ukrainian,
	language.Polish,
})

// Detect guesses the dominant language of the given lines by majority
// vote. The second return is false when nothing was detected or the
// winner is not in the supported set.
func Detect(lines []string) (Code, bool) {
	votes := make(map[language.Tag]int)
	for _, line := range lines {
		iso := whatlanggo.DetectLang(line).Iso6391()
		tag, err := language.Parse(iso)
		if err != nil {
			continue
		}
		votes[tag]++
	}

	var top language.Tag
	var topCount int
	for tag, count := range votes {
		if count > topCount {
			top = tag
			topCount = count
		}
	}
	if topCount == 0 {
		return "", false
	}

	if _, index, conf := matcher.Match(top); conf >= language.High {
		return Supported()[index], true
	}
	return "", false
}
