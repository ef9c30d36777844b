// Package tui renders the release dashboard in a terminal.
//
// [Model] is a bubbletea program fed by a snapshot subscription. It shows
// the channel menu, the selected release with one row per check, the
// verdict and any error banners. Channel shortcuts navigate by handing a
// location fragment to the dashboard, exactly like the web page does.
//
// [RenderReport] renders the same projection once, for non-interactive
// use by the check command.
package tui
