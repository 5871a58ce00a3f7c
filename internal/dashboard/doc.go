// Package dashboard serves the SmartAura web dashboard.
//
// A minimal status page is embedded in the binary. When api.dashboard_dir
// points at a built frontend, those files are served instead. Unknown paths
// fall back to index.html so client-side routing works.
package dashboard
