// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package models

// CursorID is the primary key of the single cursor row
const CursorID = 1

// Cursor is the position of the last applied event
type Cursor struct {
	ID          uint `gorm:"primarykey"`
	BlockNumber uint64
	LogIndex    uint32
	TxHash      string `gorm:"size:80"`
}

func (Cursor) TableName() string {
	return "cursor"
}
