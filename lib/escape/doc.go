/*
Package escape implements the escaping of bucket and key names for use as URL path
segments.

Two escapers are available, EscaperURI (the default) and EscaperCGI. Both encode
spaces as "%20" and slashes as "%2F". They differ only in the handling of "*" and "~".

The configuration is passed explicitly, there is no package level state:

	cfg := escape.Config{Escaper: escape.EscaperCGI}
	segment := cfg.Escape("a b/c") // "a%20b%2Fc"

If the server decodes url encoded names itself (URLDecoding), MaybeEscape and
MaybeUnescape return the name unchanged.
*/
package escape
