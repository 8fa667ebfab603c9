// Package config manages blotterscan configuration.
//
// Configuration comes from three sources, in increasing precedence:
//   - Built-in defaults (NewConfig, DefaultProfile)
//   - The .blotterscan YAML portal profile file
//   - CLI flags and environment variables
//
// The portal profile (Profile) deserves a note: the records portal's page
// structure is not owned by this project and changes without notice, so the
// form selectors and record field labels are data, not code. Pointing
// blotterscan at a different county's portal is a profile file away.
package config
