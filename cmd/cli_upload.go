package cmd

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/frahmantamala/employee-console/internal"
	"github.com/frahmantamala/employee-console/internal/upload"
	"github.com/spf13/cobra"
)

var uploadFlags struct {
	profilePicture bool
	task           bool
	projectID      string
	multiple       bool
	deleteURL      string
}

var uploadCmd = &cobra.Command{
	Use:   "upload <files...>",
	Short: "Upload files to the document bucket",
	Long: `Uploads files under the signed-in user's name. --project puts them in the project's
Documents folder, or its tasks folder with --task. --profile-picture also updates the profile.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCLI(func(ctx context.Context, env *cliEnv) error {
			sess, err := env.Session(ctx)
			if err != nil {
				return err
			}

			if uploadFlags.deleteURL != "" {
				if err := env.Services.Uploads.Delete(ctx, uploadFlags.deleteURL, sess.User.ID); err != nil {
					return err
				}
				fmt.Fprintf(env.Out, "Deleted %s\n", uploadFlags.deleteURL)
				return nil
			}
			if len(args) == 0 {
				return internal.NewValidationFieldError("files", "at least one file is required", internal.ErrCodeRequired)
			}

			files, closeAll, err := openUploadFiles(args)
			if err != nil {
				return err
			}
			defer closeAll()

			var mu sync.Mutex
			results, err := env.Services.Uploads.Upload(ctx, upload.Request{
				Files: files,
				Target: upload.Target{
					ProfilePicture: uploadFlags.profilePicture,
					Task:           uploadFlags.task,
					Project:        uploadFlags.projectID != "" && !uploadFlags.task,
					ProjectID:      uploadFlags.projectID,
				},
				Multiple: uploadFlags.multiple,
				Uploader: sess.User.Name,
				UserID:   sess.User.ID,
				Token:    sess.UpstreamToken,
				OnProgress: func(name string, percent int) {
					mu.Lock()
					defer mu.Unlock()
					fmt.Fprintf(os.Stderr, "\r%s: %3d%%", name, percent)
					if percent == 100 {
						fmt.Fprintln(os.Stderr)
					}
				},
			})
			if err != nil {
				return err
			}

			if err := env.printJSON(results); err != nil {
				return err
			}
			if len(upload.Successful(results)) == 0 {
				return internal.ErrUploadFailed
			}
			return nil
		})
	},
}

// openUploadFiles opens every path and guesses its content type from the extension,
// falling back to sniffing the first bytes.
func openUploadFiles(paths []string) ([]upload.File, func(), error) {
	var opened []*os.File
	closeAll := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}

	files := make([]upload.File, 0, len(paths))
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		opened = append(opened, f)

		info, err := f.Stat()
		if err != nil {
			closeAll()
			return nil, nil, err
		}

		contentType := mime.TypeByExtension(filepath.Ext(path))
		if contentType == "" {
			head := make([]byte, 512)
			n, _ := io.ReadFull(f, head)
			contentType = http.DetectContentType(head[:n])
			if _, err := f.Seek(0, io.SeekStart); err != nil {
				closeAll()
				return nil, nil, err
			}
		}

		files = append(files, upload.File{
			Name:        filepath.Base(path),
			ContentType: contentType,
			Size:        info.Size(),
			Body:        f,
		})
	}
	return files, closeAll, nil
}

func init() {
	f := uploadCmd.Flags()
	f.BoolVar(&uploadFlags.profilePicture, "profile-picture", false, "upload as the profile picture")
	f.BoolVar(&uploadFlags.task, "task", false, "upload to the project's tasks folder")
	f.StringVar(&uploadFlags.projectID, "project", "", "project id")
	f.BoolVar(&uploadFlags.multiple, "multiple", false, "allow more than one file")
	f.StringVar(&uploadFlags.deleteURL, "delete", "", "delete a previously uploaded file by its public URL")

	rootCmd.AddCommand(uploadCmd)
}
