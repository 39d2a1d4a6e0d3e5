// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for crate digging:
//  1. [SearchInputView] : Enter a search query
//  2. [ResultListView] : Browse the merged multi-platform results
//  3. [DownloadView] : Watch the selected track download
//  4. [ResultView] : Display the downloaded file path or failure
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Searches and downloads run as tea commands so the interface never blocks on the network.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, r, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
