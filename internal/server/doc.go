// Package server is the HTTP front end of the plate reader.
//
// # Routes
//
//   - GET  /            upload form
//   - POST /            multipart upload ("file"), renders every pipeline
//     stage top to bottom followed by the OCR result
//   - POST /api/detect  same pipeline, JSON response; ?images=1 adds the
//     stage images as base64 PNG
//   - GET  /healthz     OCR engine availability and version
//
// Pages are rendered with html/template from templates embedded in the
// binary. Stage images are inlined as PNG data URIs, so nothing is written
// to disk.
//
// # Status Codes
//
//   - 200: the pipeline ran, whether or not a plate was found
//   - 400: no file, or a file that is not a JPG or PNG image
//   - 413: upload over the configured limit
//   - 503: OCR engine unavailable (detection stages are still shown)
//   - 500: any other failure
//
// # Request IDs
//
// Every request gets an X-Request-ID (generated with google/uuid unless the
// client sent one). It is echoed in the response, printed in the access
// log and passed to the pipeline for its log lines.
//
// # Usage
//
//	srv, err := server.New(server.Options{MaxUploadMB: 20}, pipe, engine)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Run(ctx, ":8080"); err != nil {
//	    log.Fatal(err)
//	}
package server
