package io

/*
merklescrape — MerkleMap search scraper for Certificate Transparency data
Copyright (C) 2025  Pepijn van der Stap <rxtls@vanderstap.info>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

import "fmt"

// LockSuffix is appended to the output path to name its lock file.
const LockSuffix = ".lock"

// LockError is returned by AcquireLock when another process holds the lock.
type LockError struct {
	Path string
}

func (e *LockError) Error() string {
	return fmt.Sprintf("%s is locked by another running instance", e.Path)
}

// LockPath returns the lock file used to guard outputPath.
func LockPath(outputPath string) string {
	return outputPath + LockSuffix
}
