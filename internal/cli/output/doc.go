// Package output renders CLI results as a table, JSON or YAML.
//
// Table output needs the data to implement Tabular, or to be a *Table;
// anything else falls back to indented JSON.
package output
