// Package upload moves file bytes from the browser to the server before the
// widget ever sees them.
//
// Pushing file contents through the widget's websocket would block its
// event loop for the duration of the transfer, so the upload is split:
//
//  1. The client POSTs the selected files to the upload endpoint.
//  2. The endpoint streams each file into a Store and answers with temp ids.
//  3. The client sends the temp ids over the websocket as an offer.
//  4. The host claims each temp id and offers the files to the widget.
//
// # Usage
//
//	store, _ := upload.NewDiskStore("/tmp/fileupload", 100<<20)
//	r.Post("/upload", upload.Handler(store))
//
// and, when the offer arrives:
//
//	file, err := store.Claim(ctx, tempID)
//	if err != nil {
//	    return err
//	}
//	defer file.Close()
//
// # Content types
//
// The endpoint never trusts the client's Content-Type part header. The type
// recorded with each file is sniffed from its first bytes. Config.AllowedTypes
// is enforced against that detected type.
//
// Stores: DiskStore keeps files in a local directory with a JSON sidecar per
// file; S3Store keeps them under a key prefix in an S3 bucket. Both delete a
// claimed file once its reader is closed and support Cleanup of unclaimed
// files older than a cutoff.
package upload
