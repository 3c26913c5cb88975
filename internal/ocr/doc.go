// Package ocr wraps the tesseract CLI behind the Engine interface and provides
// the image preprocessing applied to HUD crops before recognition.
package ocr
