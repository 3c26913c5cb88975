// Package language maps user-facing language names and ISO codes to the
// traineddata names tesseract expects, so ocr.lang accepts "en", "english"
// or "eng" alike.
package language
