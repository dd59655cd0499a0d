// Package detect recognizes verification walls served in place of listing pages.
package detect
