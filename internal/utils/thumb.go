package utils

import (
	"bytes"
	"fmt"
	"io"
	"os"

	ffmpeg_go "github.com/u2takey/ffmpeg-go"
)

// VideoThumbnail generates a JPEG thumbnail from a video at a specific frame.
func VideoThumbnail(content []byte, frameNum int, size struct{ Width int }) ([]byte, error) {
	inputReader, inputWriter := io.Pipe()
	outputReader, outputWriter := io.Pipe()

	go func() {
		defer inputWriter.Close()
		_, err := inputWriter.Write(content)
		if err != nil {
			inputWriter.CloseWithError(err)
		}
	}()

	go func() {
		defer outputWriter.Close()
		cmd := ffmpeg_go.Input("pipe:0").
			Filter("scale", ffmpeg_go.Args{fmt.Sprintf("%d:-1", size.Width)}).
			Filter("select", ffmpeg_go.Args{fmt.Sprintf("gte(n,%d)", frameNum)}).
			Output("pipe:", ffmpeg_go.KwArgs{"vframes": 1, "format": "image2"}).
			WithInput(inputReader).
			WithOutput(outputWriter).
			WithErrorOutput(os.Stderr).
			OverWriteOutput()
		err := cmd.Run()
		if err != nil {
			outputWriter.CloseWithError(err)
		}
	}()

	var buf bytes.Buffer
	_, err := buf.ReadFrom(outputReader)
	if err != nil {
		return nil, err
	}

	data := buf.Bytes()
	if len(data) == 0 {
		return nil, fmt.Errorf("no thumbnail data returned")
	}
	return data, nil
}
