package widget

import "github.com/vango-dev/fileupload/pkg/classify"

// validate splits files into accepted and rejected. Each file is checked
// independently; when more than one file is offered to a single-file
// widget, every file is rejected and nothing is accepted.
func validate(cfg Config, groups classify.Groups, files []OfferedFile) ([]OfferedFile, []*Rejection) {
	tooMany := !cfg.Multiple && len(files) > 1

	var (
		accepted   []OfferedFile
		rejections []*Rejection
	)
	for _, f := range files {
		var reasons []Reason
		if !groups.Accepts(f.Name, f.MIMEType()) {
			reasons = append(reasons, invalidTypeReason(groups.Accept()))
		}
		if f.Size > cfg.MaxSize {
			reasons = append(reasons, tooLargeReason(cfg.MaxSize))
		}
		if tooMany {
			reasons = append(reasons, tooManyReason())
		}

		if len(reasons) > 0 {
			rejections = append(rejections, &Rejection{Filename: f.Name, Reasons: reasons})
			continue
		}
		accepted = append(accepted, f)
	}
	return accepted, rejections
}
