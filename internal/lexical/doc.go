// Package lexical implements the tokenizer and relevance scorer used to rank
// knowledge items against a query.
//
// Tokenize lower-cases text and splits it on every character that is not a
// letter, digit or underscore:
//
//	lexical.Tokenize("Use camelCase, please!") // ["use", "camelcase", "please"]
//
// Score compares every query token with the item's title tokens, its tags
// (each tag compared whole) and its content tokens:
//
//	             exact   substring
//	title          10        5
//	tag             8        4
//	content         2        1
//
// Scores accumulate over every (query token, field token) pair with no
// normalization by item or query length. A score of zero means no match.
package lexical
