// Package compress implements the run-length transform offered by the stry
// service.
//
// The input is a buffer of lowercase ascii letters that was validated by the
// caller. InPlace rewrites it in place and returns a prefix of the same memory,
// so the payload is never copied between the network read buffer and the
// response frame.
//
// Encoding:
//
//	A run of n copies of letter c is written as the decimal digits of n
//	followed by c, but only if that label is strictly shorter than the run.
//	Runs of one or two letters always stay literal, and so does any run whose
//	label would be as long as the run itself.
//
//	  "aaaaabbbbbbaaabb" -> "5a6b3abb"
//	  "crosssection"     -> "cro3section"
//	  "abcdefg"          -> "abcdefg"
//
// Because every label is shorter than the run it replaces, the output is never
// longer than the input and the write cursor never passes the read cursor.
// Expand is the inverse and is mainly used to verify results.
package compress
