// Package ui styles CLI status lines with lipgloss.
//
// [Palette] renders titles, success, error, warning and help text in Spotify colors. Styles degrade to plain
// text when the output is not a terminal, so command output stays greppable and tests see unstyled strings.
package ui
