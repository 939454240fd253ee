// Package trie implements the immutable lookup structure the composition
// engine walks.
//
// A trie is built once from a decoded dictionary tree and never mutated
// afterwards, so nodes are shared by reference between every composition
// state that points into them. Edges are single runes matched exactly
// (case-sensitive, no normalization). A node carries an ordered candidate
// list only when its path is a complete mnemonic.
package trie
