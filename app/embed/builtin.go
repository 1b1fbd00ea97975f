package embed

// DefaultPlugins is the plugin list used when none is configured.
var DefaultPlugins = []string{"buzzsprout", "transistor"}

var builtins = map[string]func() Provider{
	"buzzsprout": func() Provider { return Buzzsprout() },
	"transistor": func() Provider { return Transistor() },
}

// Buzzsprout embeds episodes hosted on Buzzsprout.
func Buzzsprout() *PatternProvider {
	return mustPatternProvider("buzzsprout",
		[]string{"*.buzzsprout.com"},
		`^https?://.*\.buzzsprout\.com/(?P<podcast>\d+)/(?:episodes/)?(?P<episode>\d+)`,
		"https://www.buzzsprout.com/${podcast}/${episode}?iframe=true")
}

// Transistor embeds episodes hosted on Transistor.
func Transistor() *PatternProvider {
	return mustPatternProvider("transistor",
		[]string{"media.transistor.fm"},
		`^https?://media\.transistor\.fm/([^/]+)/[^.]+\.mp3`,
		"https://share.transistor.fm/e/${1}")
}

func mustPatternProvider(name string, domains []string, pattern, embedURL string) *PatternProvider {
	p, err := NewPatternProvider(name, domains, pattern, embedURL)
	if err != nil {
		panic(err)
	}
	return p
}
