package export

import (
	"archive/zip"
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/maruel/natural"

	"tankobon/internal/imaging"
)

// imageExtensions are the page file types the exporters recognize.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// pixelsToPoints converts page pixels to PDF points at 96 DPI.
const pixelsToPoints = 0.75

// Exporter writes finalized groups as CBZ archives and PDF documents.
//
// Both exporters walk the group directory's chapter subdirectories in
// natural order (so "Ch_2" sorts before "Ch_10"), collect page images in
// natural order within each chapter, and emit one continuously numbered
// artifact. Enhanced page variants carrying an "_upscaled" suffix are
// preferred over their originals when present.
//
// Exports are idempotent: re-running overwrites the previous artifact.
// An empty source directory is a warning, not an error.
type Exporter struct {
	outputDir string
	maxDim    int
	imaging   *imaging.Service
	log       *slog.Logger
}

// NewExporter creates an Exporter writing artifacts into outputDir.
// maxDim bounds the longest side of pages embedded into PDFs.
func NewExporter(outputDir string, maxDim int, log *slog.Logger) *Exporter {
	return &Exporter{
		outputDir: outputDir,
		maxDim:    maxDim,
		imaging:   imaging.NewService(),
		log:       log,
	}
}

// CollectImages returns all page images under srcDir in reading order:
// chapter subdirectories naturally sorted, then page files naturally
// sorted within each. When a chapter contains "_upscaled" variants, only
// those are taken.
func CollectImages(srcDir string) ([]string, error) {
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return nil, err
	}

	var chapterDirs []string
	for _, e := range entries {
		if e.IsDir() {
			chapterDirs = append(chapterDirs, filepath.Join(srcDir, e.Name()))
		}
	}
	sort.Slice(chapterDirs, func(i, j int) bool {
		return natural.Less(chapterDirs[i], chapterDirs[j])
	})

	var images []string
	for _, dir := range chapterDirs {
		files, err := os.ReadDir(dir)
		if err != nil {
			return nil, err
		}

		var all, upscaled []string
		for _, f := range files {
			if f.IsDir() {
				continue
			}
			name := f.Name()
			if !imageExtensions[strings.ToLower(filepath.Ext(name))] {
				continue
			}
			path := filepath.Join(dir, name)
			all = append(all, path)
			if strings.Contains(name, "_upscaled") {
				upscaled = append(upscaled, path)
			}
		}

		pages := all
		if len(upscaled) > 0 {
			pages = upscaled
		}
		sort.Slice(pages, func(i, j int) bool {
			return natural.Less(pages[i], pages[j])
		})
		images = append(images, pages...)
	}

	return images, nil
}

// ExportCBZ writes srcDir's pages as "<name>.cbz".
//
// Pages are stored uncompressed (they are already compressed image
// formats) under 4-digit zero-padded archive names with one continuous
// counter across all chapters, so comic readers treat the whole group as
// a single sequence.
func (e *Exporter) ExportCBZ(srcDir, name string) error {
	images, err := CollectImages(srcDir)
	if err != nil {
		return fmt.Errorf("collect images from %s: %w", srcDir, err)
	}
	if len(images) == 0 {
		e.log.Warn("no images found for CBZ export", "source", srcDir)
		return nil
	}

	if err := os.MkdirAll(e.outputDir, 0755); err != nil {
		return err
	}
	cbzPath := filepath.Join(e.outputDir, name+".cbz")

	file, err := os.Create(cbzPath)
	if err != nil {
		return err
	}
	defer file.Close()

	zw := zip.NewWriter(file)
	for i, imgPath := range images {
		ext := strings.ToLower(filepath.Ext(imgPath))
		if ext == "" {
			ext = ".jpg"
		}
		arcname := fmt.Sprintf("%04d%s", i+1, ext)

		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:   arcname,
			Method: zip.Store,
		})
		if err != nil {
			return err
		}

		data, err := os.ReadFile(imgPath)
		if err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return err
	}

	e.log.Info("CBZ export complete", "path", cbzPath, "pages", len(images))
	return nil
}

// ExportPDF writes srcDir's pages as "<name>.pdf", one page image per
// PDF page, each page sized to its image. Pages that fail to decode are
// skipped with a warning.
func (e *Exporter) ExportPDF(srcDir, name string) error {
	images, err := CollectImages(srcDir)
	if err != nil {
		return fmt.Errorf("collect images from %s: %w", srcDir, err)
	}
	if len(images) == 0 {
		e.log.Warn("no images found for PDF export", "source", srcDir)
		return nil
	}

	if err := os.MkdirAll(e.outputDir, 0755); err != nil {
		return err
	}
	pdfPath := filepath.Join(e.outputDir, name+".pdf")

	pdf := fpdf.NewCustom(&fpdf.InitType{UnitStr: "pt"})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)

	pages := 0
	for i, imgPath := range images {
		data, err := os.ReadFile(imgPath)
		if err != nil {
			e.log.Warn("skipping unreadable page", "path", imgPath, "error", err)
			continue
		}

		jpegData, w, h, err := e.imaging.Prepare(data, e.maxDim)
		if err != nil {
			e.log.Warn("skipping undecodable page", "path", imgPath, "error", err)
			continue
		}

		wpt := float64(w) * pixelsToPoints
		hpt := float64(h) * pixelsToPoints

		pdf.AddPageFormat("P", fpdf.SizeType{Wd: wpt, Ht: hpt})

		imgName := fmt.Sprintf("page-%04d", i+1)
		opts := fpdf.ImageOptions{ImageType: "JPG"}
		pdf.RegisterImageOptionsReader(imgName, opts, bytes.NewReader(jpegData))
		pdf.ImageOptions(imgName, 0, 0, wpt, hpt, false, opts, 0, "")
		pages++
	}

	if pages == 0 {
		e.log.Warn("no decodable pages for PDF export", "source", srcDir)
		return nil
	}

	if err := pdf.OutputFileAndClose(pdfPath); err != nil {
		return fmt.Errorf("write PDF %s: %w", pdfPath, err)
	}

	e.log.Info("PDF export complete", "path", pdfPath, "pages", pages)
	return nil
}
