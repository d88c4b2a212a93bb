package tui

import (
	"fmt"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the ASCII art banner with the running version.
func PrintBanner(version string) {
	p := termenv.ColorProfile()
	// Bramble greens, darkening towards the roots.
	s1 := termenv.String(" _                         _     _      ").Foreground(p.Color("#bef264"))
	s2 := termenv.String("| |__  _ __ __ _ _ __ ___ | |__ | | ___ ").Foreground(p.Color("#a3e635"))
	s3 := termenv.String("| '_ \\| '__/ _` | '_ ` _ \\| '_ \\| |/ _ \\").Foreground(p.Color("#84cc16"))
	s4 := termenv.String("| |_) | | | (_| | | | | | | |_) | |  __/").Foreground(p.Color("#65a30d"))
	s5 := termenv.String("|_.__/|_|  \\__,_|_| |_| |_|_.__/|_|\\___|").Foreground(p.Color("#4d7c0f"))
	v := termenv.String("  " + version).Foreground(p.Color("#a8a29e"))

	fmt.Println()
	fmt.Println(s1)
	fmt.Println(s2)
	fmt.Println(s3)
	fmt.Println(s4)
	fmt.Println(s5)
	fmt.Println(v)
	fmt.Println()
}
