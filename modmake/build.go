package main

import (
	. "github.com/saylorsolutions/modmake"
)

const (
	obfsecretsVersion = "0.1.0"
)

func main() {
	b := NewBuild()
	b.Generate().DependsOnRunner("tidy", "", Go().ModTidy())

	obfsecrets := NewAppBuild("obfsecrets", "cmd/obfsecrets", obfsecretsVersion)
	obfsecrets.Build(func(gb *GoBuild) {
		gb.
			StripDebugSymbols().
			SetVariable("main", "version", obfsecretsVersion).
			CgoEnabled(false)
	})
	for _, platform := range [][2]string{
		{"windows", "amd64"},
		{"linux", "amd64"},
		{"linux", "arm64"},
		{"darwin", "amd64"},
		{"darwin", "arm64"},
	} {
		obfsecrets.Variant(platform[0], platform[1])
	}
	b.ImportApp(obfsecrets)

	b.Execute()
}
