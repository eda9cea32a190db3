package decoder

import "io"

// ReadBytes reads exactly n bytes from r. A reader that runs dry before the
// first byte returns io.EOF, one that runs dry midway io.ErrUnexpectedEOF.
func ReadBytes(r io.Reader, n int) ([]byte, error) {
	result := make([]byte, 0, n)
	needToRead := n
	for needToRead > 0 {
		buff := make([]byte, needToRead)
		read, err := r.Read(buff)
		result = append(result, buff[:read]...)
		needToRead -= read
		if err == io.EOF && needToRead > 0 {
			if len(result) == 0 {
				return nil, io.EOF
			}
			return nil, io.ErrUnexpectedEOF
		}
		if err != nil && err != io.EOF {
			return nil, err
		}
	}

	return result, nil
}
