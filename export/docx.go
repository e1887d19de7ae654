package export

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"
)

// 最小 docx：包清单、关系文件和正文三个部件就够 Word 打开。

const docxContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const docxRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

// buildDocx 生成标题段 + 模式副标题 + 逐行正文段的最小文档。
func buildDocx(topic, fullText, modeLabel string) ([]byte, error) {
	var doc strings.Builder
	doc.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	doc.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)

	writePara := func(text string, bold bool) {
		doc.WriteString("<w:p><w:r>")
		if bold {
			doc.WriteString("<w:rPr><w:b/><w:sz w:val=\"32\"/></w:rPr>")
		}
		doc.WriteString("<w:t xml:space=\"preserve\">")
		doc.WriteString(escapeXML(text))
		doc.WriteString("</w:t></w:r></w:p>")
	}

	writePara(topic, true)
	if modeLabel != "" {
		writePara(modeLabel, false)
	}
	for _, line := range textLines(fullText) {
		writePara(line, false)
	}

	doc.WriteString(`<w:sectPr/></w:body></w:document>`)

	return writeZip([]zipPart{
		{"[Content_Types].xml", docxContentTypes},
		{"_rels/.rels", docxRels},
		{"word/document.xml", doc.String()},
	})
}

type zipPart struct {
	name    string
	content string
}

// writeZip 把部件按给定顺序写成一个 OOXML 包，
// [Content_Types].xml 必须排在最前。
func writeZip(parts []zipPart) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, p := range parts {
		name, content := p.name, p.content
		w, err := zw.Create(name)
		if err != nil {
			return nil, fmt.Errorf("creating part %s: %w", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			return nil, fmt.Errorf("writing part %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
