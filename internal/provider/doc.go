// Package provider turns documents on disk into the page model.
//
// Two loaders are available, selected by file extension through ForPath:
//   - JSONLoader reads document model files written by an external extractor
//   - PDFLoader reads PDF files with pdfcpu, interpreting page content
//     streams for text runs and image placements
//
// ImageDirRenderer attaches pre-rendered page rasters so the visual
// signals (perceptual hash and SSIM) can take part in matching.
package provider
