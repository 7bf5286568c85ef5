/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package assets

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/png"
	"os"
)

// icoDirSize is the length of ICONDIR plus one ICONDIRENTRY, which is
// where the image payload starts in a single-image file.
const icoDirSize = 6 + 16

// WriteICO writes img as a single-image favicon.ico. Modern browsers
// accept a PNG payload inside the ICO directory, so the pixel data is
// stored PNG-encoded rather than as a BMP.
func WriteICO(path string, img *image.RGBA) error {
	var payload bytes.Buffer
	if err := png.Encode(&payload, img); err != nil {
		return fmt.Errorf("encode ico payload: %w", err)
	}

	b := img.Bounds()
	entryDim := func(n int) uint8 {
		if n >= 256 {
			return 0
		}
		return uint8(n)
	}

	var out bytes.Buffer
	dir := struct {
		Reserved uint16
		Type     uint16
		Count    uint16
	}{Reserved: 0, Type: 1, Count: 1}
	entry := struct {
		Width    uint8
		Height   uint8
		Colors   uint8
		Reserved uint8
		Planes   uint16
		BitCount uint16
		Size     uint32
		Offset   uint32
	}{
		Width:    entryDim(b.Dx()),
		Height:   entryDim(b.Dy()),
		Planes:   1,
		BitCount: 32,
		Size:     uint32(payload.Len()),
		Offset:   icoDirSize,
	}
	if err := binary.Write(&out, binary.LittleEndian, dir); err != nil {
		return fmt.Errorf("write ico header: %w", err)
	}
	if err := binary.Write(&out, binary.LittleEndian, entry); err != nil {
		return fmt.Errorf("write ico entry: %w", err)
	}
	out.Write(payload.Bytes())

	if err := os.WriteFile(path, out.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write ico: %w", err)
	}
	return nil
}
