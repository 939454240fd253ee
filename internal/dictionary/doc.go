// Package dictionary turns dictionary files into tries.
//
// A dictionary is a nested mapping: at each level, single-character keys
// are child edges and the reserved key ">>" lists the candidates for the
// path so far. JSON, YAML and CUE sources are supported. Every source is
// decoded into the same generic tree, checked against an embedded JSON
// Schema, normalized (candidate strings to NFC, edge keys untouched) and
// handed to trie.Build.
//
// Any failure along the way is reported as a *trie.MalformedDictionaryError;
// a broken dictionary never silently becomes an empty trie.
package dictionary
