// Package classify groups file extensions into the MIME patterns a file
// picker or drop zone uses as its accept list.
//
// The grouping is a fixed table:
//
//	image/*          .png .jpg .jpeg .gif .avif .bmp .ico .svg .tiff .webp
//	video/*          .avi .mp4 .mpeg .ogg .webm
//	application/pdf  .pdf
//	text/csv         .csv
//	text/plain       everything else
//
// Classification never fails. Unknown extensions land in the permissive
// text/plain group so a misconfigured widget still accepts the files its
// author listed.
//
//	g := classify.Classify([]string{".png", ".csv", ".xyz"})
//	g.Patterns()               // ["image/*", "text/csv", "text/plain"]
//	g.Accepts("a.png", "")     // true
//	g.AcceptAttr()             // "image/*,.png,text/csv,.csv,text/plain,.xyz"
package classify
