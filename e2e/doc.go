// Package e2e holds end-to-end smoke tests; run them with -tags e2e.
package e2e
