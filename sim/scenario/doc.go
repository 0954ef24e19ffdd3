// Package scenario loads rover scenarios from a directory of JSON or YAML
// files and caches them by file stem. The default scenario is mars.* when
// present, otherwise the first valid file, otherwise engine.DefaultScenario.
package scenario
