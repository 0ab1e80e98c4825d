// Package api serves the task manager over HTTP: HTML pages for browsing and
// editing tasks, form submissions with method override, a health check and the
// metrics endpoint. The same middleware chain also fronts the static site.
package api
