// Package html repairs recognizer pages that leak HTML markup.
//
// Vision models sometimes answer with HTML fragments instead of markdown:
// a <table> where pipe rows were asked for, or <b>/<br> inside paragraph
// text. The Cleaner converts such fragments back to the markdown the
// parser expects and sanitises whatever markup remains.
package html
