// Package confloader loads configuration from YAML files and environment
// variables using koanf, and watches the config file for changes.
//
// Priority (highest to lowest):
//
//  1. Overrides passed to LoadMap (command-line flags)
//  2. Environment variables (PORTMESH_SECTION__KEY)
//  3. Configuration file
//  4. Values already present in the target struct (defaults)
package confloader
